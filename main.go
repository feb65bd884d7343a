package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"library-system/library"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var manager *library.Manager

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", what, s)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:          "librarysys",
	Short:        "Library circulation and membership desk",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real settings come from the environment.
		_ = godotenv.Load()

		cfg, err := library.LoadConfig(context.Background())
		if err != nil {
			return err
		}
		log := library.NewLogger(library.LoggerOptions{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

		manager, err = library.NewManager(cfg.DBPath, log)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if manager != nil {
			manager.Close()
		}
	},
}

// ------------------ Authentication ------------------

var loginCmd = &cobra.Command{
	Use:   "login USERNAME",
	Short: "Verify credentials and show the account's role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		result, err := manager.Login(args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Welcome %s (%s)\n", result.Username, result.Role)
		return nil
	},
}

// ------------------ Membership ------------------

var registerCmd = &cobra.Command{
	Use:   "register-member NAME EMAIL TYPE",
	Short: "Register a library member (Regular, Premium, or Student)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mtype, ok := library.ParseMembershipType(args[2])
		if !ok {
			return fmt.Errorf("membership type must be Regular, Premium, or Student, got %q", args[2])
		}
		member, err := manager.RegisterMember(args[0], args[1], mtype)
		if err != nil {
			return err
		}
		fmt.Printf("Member registered: ID %d, expires %s\n", member.ID, member.MembershipExpiry.Format("2006-01-02"))
		return nil
	},
}

var renewCmd = &cobra.Command{
	Use:   "renew MEMBER_ID TYPE DURATION",
	Short: "Renew a membership from today (\"6 Months\", \"1 Year\", \"2 Years\")",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := parseID(args[0], "member id")
		if err != nil {
			return err
		}
		mtype, ok := library.ParseMembershipType(args[1])
		if !ok {
			return fmt.Errorf("membership type must be Regular, Premium, or Student, got %q", args[1])
		}
		duration, ok := library.ParseRenewalDuration(args[2])
		if !ok {
			return fmt.Errorf("duration must be \"6 Months\", \"1 Year\", or \"2 Years\", got %q", args[2])
		}
		member, err := manager.RenewMembership(memberID, mtype, duration)
		if err != nil {
			return err
		}
		fmt.Printf("Membership renewed: now %s, expires %s\n", member.MembershipType, member.MembershipExpiry.Format("2006-01-02"))
		return nil
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List registered members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		members, err := manager.Store().ListMembers()
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-25s %-30s %-10s %-12s\n", "ID", "Name", "Contact", "Type", "Expires")
		now := time.Now()
		for _, m := range members {
			expiry := m.MembershipExpiry.Format("2006-01-02")
			if library.IsExpired(m, now) {
				expiry += " (expired)"
			}
			fmt.Printf("%-5d %-25s %-30s %-10s %s\n", m.ID, m.Name, m.Contact, m.MembershipType, expiry)
		}
		return nil
	},
}

// ------------------ Catalog ------------------

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := manager.Store().ListBooks()
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-40s %-25s %s\n", "ID", "Title", "Author", "Available")
		for _, b := range books {
			fmt.Printf("%-5d %-40s %-25s %t\n", b.ID, b.Title, b.Author, b.Available)
		}
		return nil
	},
}

var addBookCmd = &cobra.Command{
	Use:   "add-book TITLE AUTHOR",
	Short: "Add a title to the catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := manager.AddBook(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Book added with ID %d\n", id)
		return nil
	},
}

// ------------------ Circulation ------------------

var borrowCmd = &cobra.Command{
	Use:   "borrow MEMBER_ID BOOK_ID",
	Short: "Record a borrowing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := parseID(args[0], "member id")
		if err != nil {
			return err
		}
		bookID, err := parseID(args[1], "book id")
		if err != nil {
			return err
		}
		rec, err := manager.BorrowBook(memberID, bookID)
		if err != nil {
			return err
		}
		fmt.Printf("Borrow recorded: ID %d, due %s\n", rec.BorrowID, rec.DueDate.Format("2006-01-02"))
		return nil
	},
}

var returnCmd = &cobra.Command{
	Use:   "return BORROW_ID",
	Short: "Record a return and any overdue fine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		borrowID, err := parseID(args[0], "borrow id")
		if err != nil {
			return err
		}
		result, err := manager.ReturnBook(borrowID)
		if err != nil {
			return err
		}
		if result.DaysLate > 0 {
			fmt.Printf("Returned %d days late. Fine: %s\n", result.DaysLate, library.FormatFine(result.FineCents))
		} else {
			fmt.Println("Returned on time. No fine.")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history MEMBER_ID",
	Short: "Show a member's borrowing history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := parseID(args[0], "member id")
		if err != nil {
			return err
		}
		records, err := manager.BorrowingHistory(memberID)
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-6s %-12s %-12s %-12s %-8s\n", "ID", "Book", "Borrowed", "Due", "Returned", "Fine")
		for _, r := range records {
			returned := "-"
			if r.ReturnDate != nil {
				returned = r.ReturnDate.Format("2006-01-02")
			}
			fmt.Printf("%-5d %-6d %-12s %-12s %-12s %-8s\n",
				r.BorrowID, r.BookID,
				r.BorrowDate.Format("2006-01-02"), r.DueDate.Format("2006-01-02"),
				returned, library.FormatFine(r.FineCents))
		}
		return nil
	},
}

// ------------------ Reading progress ------------------

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Track members' reading progress",
}

var progressRecordCmd = &cobra.Command{
	Use:   "record MEMBER_ID METRIC DETAILS",
	Short: "File a progress note (METRIC is a percentage, 1-100)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := parseID(args[0], "member id")
		if err != nil {
			return err
		}
		metric, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("metric must be a number, got %q", args[1])
		}
		recordedBy, _ := cmd.Flags().GetString("by")
		progress, err := manager.RecordReadingProgress(memberID, recordedBy, args[2], metric)
		if err != nil {
			return err
		}
		fmt.Printf("Progress %d recorded at %.0f%%\n", progress.ID, progress.Metric)
		return nil
	},
}

var progressListCmd = &cobra.Command{
	Use:   "list MEMBER_ID",
	Short: "Show a member's progress notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := parseID(args[0], "member id")
		if err != nil {
			return err
		}
		entries, err := manager.ReadingProgressForMember(memberID)
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-12s %-8s %-15s %s\n", "ID", "Date", "Metric", "Recorded By", "Details")
		for _, p := range entries {
			fmt.Printf("%-5d %-12s %-8.0f %-15s %s\n",
				p.ID, p.ProgressDate.Format("2006-01-02"), p.Metric, p.RecordedBy, p.Details)
		}
		return nil
	},
}

// ------------------ Fines ------------------

var assessFinesCmd = &cobra.Command{
	Use:   "assess-fines MEMBER_ID",
	Short: "Assess and persist overdue fines for a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := parseID(args[0], "member id")
		if err != nil {
			return err
		}
		assessed, err := manager.AssessOverdueFines(memberID)
		if err != nil {
			return err
		}
		if len(assessed) == 0 {
			fmt.Println("No overdue books for this member.")
			return nil
		}
		for _, a := range assessed {
			fmt.Printf("Borrow %d: %d days late, fine %s\n", a.BorrowID, a.DaysLate, library.FormatFine(a.FineCents))
		}
		return nil
	},
}

var finesCmd = &cobra.Command{
	Use:   "fines MEMBER_ID",
	Short: "View a member's overdue fines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := parseID(args[0], "member id")
		if err != nil {
			return err
		}
		recalculate, _ := cmd.Flags().GetBool("recalculate")
		views, err := manager.ListFinesForMember(memberID, recalculate)
		if err != nil {
			return err
		}
		if len(views) == 0 {
			fmt.Println("No overdue books for this member.")
			return nil
		}
		fmt.Printf("%-5s %-25s %-30s %-12s %-10s %s\n", "ID", "Member", "Book", "Due", "Days Late", "Fine")
		for _, v := range views {
			fmt.Printf("%-5d %-25s %-30s %-12s %-10d %s\n",
				v.BorrowID, v.MemberName, v.BookTitle,
				v.DueDate.Format("2006-01-02"), v.DaysLate, library.FormatFine(v.FineCents))
		}
		return nil
	},
}

// ------------------ Accounts ------------------

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Administer login accounts",
}

var accountCreateMemberCmd = &cobra.Command{
	Use:   "create-member USERNAME NAME EMAIL TYPE",
	Short: "Create a member account with its profile",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		mtype, ok := library.ParseMembershipType(args[3])
		if !ok {
			return fmt.Errorf("membership type must be Regular, Premium, or Student, got %q", args[3])
		}
		password, err := readPassword("Password for new account: ")
		if err != nil {
			return err
		}
		member, err := manager.CreateMemberAccount(args[0], password, args[1], args[2], mtype)
		if err != nil {
			return err
		}
		fmt.Printf("Account %q created with MemberID %d\n", args[0], member.ID)
		return nil
	},
}

var accountCreateStaffCmd = &cobra.Command{
	Use:   "create-staff USERNAME ROLE",
	Short: "Create a staff account (admin, librarian, assistant)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password for new account: ")
		if err != nil {
			return err
		}
		account, err := manager.CreateStaffAccount(args[0], password, library.Role(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("Account %q created with role %s\n", account.Username, account.Role)
		return nil
	},
}

var accountLockCmd = &cobra.Command{
	Use:   "lock USERNAME",
	Short: "Lock an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := manager.LockAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %q locked\n", args[0])
		return nil
	},
}

var accountUnlockCmd = &cobra.Command{
	Use:   "unlock USERNAME",
	Short: "Unlock an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := manager.UnlockAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %q unlocked\n", args[0])
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List login accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := manager.Store().ListAccounts()
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %-12s %s\n", "Username", "Role", "Locked")
		for _, a := range accounts {
			fmt.Printf("%-20s %-12s %t\n", a.Username, a.Role, a.Locked)
		}
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete an account and its linked member profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := manager.DeleteAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %q deleted\n", args[0])
		return nil
	},
}

// ------------------ Facilities ------------------

var facilitiesCmd = &cobra.Command{
	Use:   "facilities",
	Short: "List library facilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		facilities, err := manager.Store().ListFacilities()
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-30s %s\n", "ID", "Name", "Status")
		for _, f := range facilities {
			fmt.Printf("%-5d %-30s %s\n", f.ID, f.Name, f.Status)
		}
		return nil
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Facility maintenance scheduling",
}

var maintenanceScheduleCmd = &cobra.Command{
	Use:   "schedule FACILITY_ID DATE DESCRIPTION",
	Short: "Schedule maintenance for a facility (DATE as YYYY-MM-DD)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		facilityID, err := parseID(args[0], "facility id")
		if err != nil {
			return err
		}
		day, err := time.ParseInLocation("2006-01-02", args[1], time.UTC)
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD, got %q", args[1])
		}
		rec, err := manager.ScheduleMaintenance(facilityID, args[2], day)
		if err != nil {
			return err
		}
		fmt.Printf("Maintenance %d scheduled for %s\n", rec.ID, rec.ScheduledDate.Format("2006-01-02"))
		return nil
	},
}

var maintenanceListCmd = &cobra.Command{
	Use:   "list FACILITY_ID",
	Short: "List maintenance records for a facility",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facilityID, err := parseID(args[0], "facility id")
		if err != nil {
			return err
		}
		records, err := manager.Store().ListMaintenance(facilityID)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("%-5d %-12s %-10s %s\n", r.ID, r.ScheduledDate.Format("2006-01-02"), r.Status, r.Description)
		}
		return nil
	},
}

// ------------------ Audit ------------------

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := manager.Store().ListAuditLog(limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%-20s [%-5s] [%s] %s (User: %s)\n",
				e.LoggedAt.Format("2006-01-02 15:04:05"), e.Level, e.Source, e.Message, e.Username)
		}
		return nil
	},
}

func init() {
	finesCmd.Flags().Bool("recalculate", false, "recompute fines from today's date instead of showing persisted amounts")
	progressRecordCmd.Flags().String("by", "", "staff username filing the note")
	auditCmd.Flags().Int("limit", 50, "maximum entries to show")

	accountCmd.AddCommand(accountCreateMemberCmd, accountCreateStaffCmd, accountListCmd, accountLockCmd, accountUnlockCmd, accountDeleteCmd)
	maintenanceCmd.AddCommand(maintenanceScheduleCmd, maintenanceListCmd)
	progressCmd.AddCommand(progressRecordCmd, progressListCmd)

	rootCmd.AddCommand(loginCmd, registerCmd, renewCmd, membersCmd,
		booksCmd, addBookCmd, borrowCmd, returnCmd, historyCmd,
		assessFinesCmd, finesCmd, progressCmd, accountCmd, facilitiesCmd, maintenanceCmd, auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
