package main

import (
	"fmt"
	"os"
	"strings"

	"library-system/library"

	"github.com/rs/zerolog"
)

const adminPassword = "changeme"

func main() {
	// Clean up any existing database files
	fmt.Println("Cleaning up existing database files...")
	dbFiles := []string{"library.db", "library.db-shm", "library.db-wal"}
	for _, file := range dbFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}
	fmt.Println("Database cleanup complete.")

	manager, err := library.NewManager("library.db", zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	// Bootstrap staff accounts so the desk can log in
	fmt.Println("\nCreating staff accounts...")
	staff := []struct {
		username string
		role     library.Role
	}{
		{"admin", library.RoleAdmin},
		{"librarian", library.RoleLibrarian},
		{"assistant", library.RoleAssistant},
	}
	for _, s := range staff {
		if _, err := manager.CreateStaffAccount(s.username, adminPassword, s.role); err != nil {
			fmt.Printf("ERROR creating %s: %v\n", s.username, err)
			continue
		}
		fmt.Printf("Created %s (%s)\n", s.username, s.role)
	}
	fmt.Printf("Default password for all staff accounts: %q\n", adminPassword)

	// Seed the catalog
	catalog := [][2]string{
		{"1984", "George Orwell"},
		{"Animal Farm", "George Orwell"},
		{"The Diary of a Young Girl", "Anne Frank"},
		{"The Art of War", "Sun Tzu"},
		{"The Fellowship of the Ring", "J.R.R. Tolkien"},
		{"The Two Towers", "J.R.R. Tolkien"},
		{"The Return of the King", "J.R.R. Tolkien"},
		{"Romeo and Juliet", "William Shakespeare"},
		{"The Three Musketeers", "Alexandre Dumas"},
		{"Pride and Prejudice", "Jane Austen"},
		{"Moby-Dick", "Herman Melville"},
		{"To Kill a Mockingbird", "Harper Lee"},
	}

	fmt.Println("\nSeeding catalog...")
	successCount := 0
	errorCount := 0
	for _, entry := range catalog {
		title, author := entry[0], entry[1]
		fmt.Printf("Adding: %s by %s... ", title, author)
		bookID, err := manager.AddBook(title, author)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %d)\n", bookID)
		successCount++
	}

	// Seed facilities so maintenance scheduling has targets
	fmt.Println("\nSeeding facilities...")
	facilities := []string{"Main Reading Room", "Children's Wing", "Archive Basement", "Computer Lab"}
	for _, name := range facilities {
		id, err := manager.Store().AddFacility(&library.Facility{Name: name, Status: "open"})
		if err != nil {
			fmt.Printf("ERROR adding %s: %v\n", name, err)
			errorCount++
			continue
		}
		fmt.Printf("Added facility %d: %s\n", id, name)
	}

	fmt.Printf("\nSeed complete!\n")
	fmt.Printf("Books added: %d\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Println("\nCatalog:")
		books, err := manager.Store().ListBooks()
		if err != nil {
			fmt.Printf("Error retrieving books: %v\n", err)
		} else {
			fmt.Printf("%-3s %-50s %-30s\n", "ID", "Title", "Author")
			fmt.Println(strings.Repeat("-", 85))
			for _, book := range books {
				fmt.Printf("%-3d %-50s %-30s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30))
			}
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
