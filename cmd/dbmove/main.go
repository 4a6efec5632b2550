package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CaptainASIC/dbmove/internal/database"
	"github.com/CaptainASIC/dbmove/internal/journal"
	"github.com/CaptainASIC/dbmove/internal/migrate"
	"github.com/CaptainASIC/dbmove/internal/session"
)

var (
	sessionPath string

	sourceHost     string
	sourcePort     string
	sourceUser     string
	sourcePassword string
	sourceDB       string

	destHost     string
	destPort     string
	destUser     string
	destPassword string
	destDB       string

	assumeYes     bool
	saveSession   bool
	savePasswords bool

	endpointHost     string
	endpointPort     string
	endpointUser     string
	endpointPassword string
	endpointDest     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dbmove",
	Short: "MySQL database migration tool",
	Long:  `A tool to copy a MySQL database between servers, rewriting table DDL for cross-version compatibility.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate a database from one server to another",
	Long: `Copy every base table of the source database onto the destination
server. The destination database is dropped and recreated first, so any
existing contents under that name are destroyed.`,
	RunE: runMigrate,
}

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List databases on a server",
	RunE:  runDatabases,
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to a server",
	RunE:  runTest,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past migration runs",
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "Session file (default: ~/.dbmove/session.yaml)")

	migrateCmd.Flags().StringVar(&sourceHost, "source-host", "", "Source server host")
	migrateCmd.Flags().StringVar(&sourcePort, "source-port", "", "Source server port")
	migrateCmd.Flags().StringVar(&sourceUser, "source-user", "", "Source server username")
	migrateCmd.Flags().StringVar(&sourcePassword, "source-password", "", "Source server password")
	migrateCmd.Flags().StringVar(&sourceDB, "source-db", "", "Database to migrate")
	migrateCmd.Flags().StringVar(&destHost, "dest-host", "", "Destination server host")
	migrateCmd.Flags().StringVar(&destPort, "dest-port", "", "Destination server port")
	migrateCmd.Flags().StringVar(&destUser, "dest-user", "", "Destination server username")
	migrateCmd.Flags().StringVar(&destPassword, "dest-password", "", "Destination server password")
	migrateCmd.Flags().StringVar(&destDB, "dest-db", "", "Database name to create on the destination")
	migrateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	migrateCmd.Flags().BoolVar(&saveSession, "save-session", true, "Remember the connection settings for the next run")
	migrateCmd.Flags().BoolVar(&savePasswords, "save-passwords", false, "Also remember passwords (base64-obfuscated, not encrypted)")

	for _, cmd := range []*cobra.Command{databasesCmd, testCmd} {
		cmd.Flags().StringVar(&endpointHost, "host", "", "Server host")
		cmd.Flags().StringVar(&endpointPort, "port", "", "Server port")
		cmd.Flags().StringVar(&endpointUser, "user", "", "Server username")
		cmd.Flags().StringVar(&endpointPassword, "password", "", "Server password")
		cmd.Flags().BoolVar(&endpointDest, "dest", false, "Use the destination endpoint's saved settings and environment")
	}

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(databasesCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(historyCmd)
}

func resolveSessionPath() (string, error) {
	if sessionPath != "" {
		return sessionPath, nil
	}
	return session.DefaultPath()
}

func loadSession() (session.Session, string, error) {
	path, err := resolveSessionPath()
	if err != nil {
		return session.Default(), "", err
	}
	s, err := session.Load(path)
	return s, path, err
}

// resolveConfig builds an endpoint configuration, taking each field from the
// first of: explicit flag, saved session, environment, built-in default.
func resolveConfig(host, port, user, password string, saved session.Endpoint, envPrefix string) database.Config {
	env := database.LoadConfigFromEnv(envPrefix)

	cfg := database.Config{Host: host, Port: port, User: user, Password: password}
	if cfg.Host == "" {
		cfg.Host = saved.Host
	}
	if cfg.Host == "" {
		cfg.Host = env.Host
	}
	if cfg.Port == "" {
		cfg.Port = saved.Port
	}
	if cfg.Port == "" {
		cfg.Port = env.Port
	}
	if cfg.User == "" {
		cfg.User = saved.Username
	}
	if cfg.User == "" {
		cfg.User = env.User
	}
	if cfg.Password == "" {
		cfg.Password = saved.Password
	}
	if cfg.Password == "" {
		cfg.Password = env.Password
	}
	return cfg
}

func confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sess, path, err := loadSession()
	if err != nil {
		return err
	}

	srcCfg := resolveConfig(sourceHost, sourcePort, sourceUser, sourcePassword, sess.Source, "DBMOVE_SOURCE")
	dstCfg := resolveConfig(destHost, destPort, destUser, destPassword, sess.Destination, "DBMOVE_DEST")

	srcDB := sourceDB
	if srcDB == "" {
		srcDB = sess.Source.LastDatabase
	}
	if srcDB == "" {
		return errors.New("no source database given (use --source-db)")
	}
	dstDB := destDB
	if dstDB == "" {
		dstDB = sess.Destination.LastDatabase
	}
	if dstDB == "" {
		return errors.New("no destination database given (use --dest-db)")
	}

	if !assumeYes {
		prompt := fmt.Sprintf("Migrate database '%s' on %s to '%s' on %s? The destination database will be dropped and recreated",
			srcDB, srcCfg.Redacted(), dstDB, dstCfg.Redacted())
		ok, err := confirm(prompt)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	src, err := database.Connect(srcCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to source: %w", err)
	}
	defer src.Close()

	dst, err := database.Connect(dstCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to destination: %w", err)
	}
	defer dst.Close()

	startedAt := time.Now()
	fmt.Printf("Migrating '%s' to '%s'...\n", srcDB, dstDB)
	outcome := migrate.Migrate(src, dst, srcDB, dstDB)

	recordRun(journal.Entry{
		StartedAt:      startedAt,
		SourceHost:     srcCfg.Host,
		SourceDB:       srcDB,
		DestHost:       dstCfg.Host,
		DestDB:         dstDB,
		Success:        outcome.Success,
		TablesMigrated: outcome.TablesMigrated,
		Message:        outcome.Message,
	})

	if saveSession {
		sess.Source = session.Endpoint{Host: srcCfg.Host, Port: srcCfg.Port, Username: srcCfg.User, Password: srcCfg.Password, LastDatabase: srcDB}
		sess.Destination = session.Endpoint{Host: dstCfg.Host, Port: dstCfg.Port, Username: dstCfg.User, Password: dstCfg.Password, LastDatabase: dstDB}
		sess.SavePasswords = savePasswords
		if err := sess.Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save session: %v\n", err)
		}
	}

	if !outcome.Success {
		return errors.New(outcome.Message)
	}
	fmt.Println(outcome.Message)
	return nil
}

// recordRun appends the run to the local history. History is best-effort
// and never fails a migration.
func recordRun(entry journal.Entry) {
	path, err := journal.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
		return
	}
	j, err := journal.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
		return
	}
	defer j.Close()

	if err := j.Record(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
	}
}

func endpointConfig() (database.Config, error) {
	sess, _, err := loadSession()
	if err != nil {
		return database.Config{}, err
	}
	if endpointDest {
		return resolveConfig(endpointHost, endpointPort, endpointUser, endpointPassword, sess.Destination, "DBMOVE_DEST"), nil
	}
	return resolveConfig(endpointHost, endpointPort, endpointUser, endpointPassword, sess.Source, "DBMOVE_SOURCE"), nil
}

func runDatabases(cmd *cobra.Command, args []string) error {
	cfg, err := endpointConfig()
	if err != nil {
		return err
	}

	conn, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	names, err := conn.Databases()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := endpointConfig()
	if err != nil {
		return err
	}

	conn, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	fmt.Printf("Connection to %s successful\n", cfg.Redacted())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, err := journal.DefaultPath()
	if err != nil {
		return err
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Entries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No migrations recorded.")
		return nil
	}

	for _, e := range entries {
		status := "FAILED"
		if e.Success {
			status = "OK"
		}
		fmt.Printf("%s  %-6s  %s/%s -> %s/%s  (%d tables)\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status, e.SourceHost, e.SourceDB, e.DestHost, e.DestDB, e.TablesMigrated)
		if !e.Success {
			fmt.Printf("    %s\n", e.Message)
		}
	}
	return nil
}
