package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jdscraper/pkg/browser"
	"jdscraper/pkg/config"
	"jdscraper/pkg/jd"
	"jdscraper/pkg/logger"
	"jdscraper/pkg/session"
	"jdscraper/pkg/ui"
)

// bootstrapTimeout bounds how long the login window stays open waiting
// for a human to finish signing in.
const bootstrapTimeout = 5 * time.Minute

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage storefront session tokens",
	Long: `Manage stored storefront session tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Plain cookies.json file (when configured)
  - Environment variables (backward compatibility)

Never share your session tokens or cookies files!`,
}

// bootstrapCmd represents the auth bootstrap command
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap [profile]",
	Short: "Log in through a visible browser and capture session tokens",
	Long: `Open a visible browser window on the storefront login page and
wait for you to sign in. QR code login through the mobile app is the
most reliable method.

Once the browser leaves the login portal, every cookie in the session
is captured, normalized, and stored securely under the given profile
name (or "default").`,
	Example: `  # Bootstrap the default session
  jdscraper auth bootstrap

  # Bootstrap a named profile
  jdscraper auth bootstrap work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBootstrap,
}

// importCmd represents the auth import command
var importCmd = &cobra.Command{
	Use:   "import <cookies.json> [profile]",
	Short: "Import session tokens from a cookies.json file",
	Long: `Import session tokens exported from a browser extension such as
EditThisCookie. The file must contain a JSON array of cookie objects
with at least "name" and "value" fields.`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runImport,
}

// sessionsCmd represents the auth list command
var sessionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored session profiles",
	Long:  `List all stored session profiles with sanitized token values.`,
	Run:   runSessionList,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored session tokens",
	Long: `Remove stored session tokens.

If no profile is provided, you will be shown a list of stored profiles
to choose from. You can also remove all profiles at once.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(bootstrapCmd)
	authCmd.AddCommand(importCmd)
	authCmd.AddCommand(sessionsCmd)
	authCmd.AddCommand(logoutCmd)
}

// authSessionManager loads config and builds the session manager the
// auth subcommands share.
func authSessionManager() (*config.Config, *session.Manager) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	logger.Initialize(&cfg.Logging)

	manager, err := session.NewManager(cfg.Session.Store, cfg.Session.CookiesFile)
	if err != nil {
		ui.PrintError("Failed to initialize session manager", err.Error())
		os.Exit(1)
	}
	return cfg, manager
}

func runBootstrap(cmd *cobra.Command, args []string) {
	profile := session.DefaultProfile
	if len(args) > 0 {
		profile = strings.TrimSpace(args[0])
	}

	cfg, manager := authSessionManager()
	log := logger.GetLogger()

	session.ShowBootstrapGuide()

	factory := browser.NewFactory(cfg, log)
	defer factory.Close()

	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()

	sess, err := factory.VisibleSession(ctx)
	if err != nil {
		ui.PrintError("Failed to open login window", err.Error())
		os.Exit(1)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, jd.LoginURL); err != nil {
		ui.PrintError("Failed to open login page", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Waiting for login", "sign in using the window that just opened")

	// The login portal and its QR relay live on their own domains. Once
	// the location leaves all of them, the login completed.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			ui.PrintError("Login timed out", fmt.Sprintf("no login observed within %s", bootstrapTimeout))
			os.Exit(1)
		case <-ticker.C:
		}

		location, err := sess.CurrentURL(ctx)
		if err != nil {
			log.WithError(err).Debug("Could not read login window location")
			continue
		}
		if !jd.MatchesAny(location, cfg.Target.BootstrapPatterns) {
			break
		}
	}

	raw, err := sess.Cookies(ctx)
	if err != nil {
		ui.PrintError("Failed to capture session cookies", err.Error())
		os.Exit(1)
	}

	tokens := session.Normalize(raw, cfg.Session.Domain)
	if len(tokens) == 0 {
		ui.PrintError("Login produced no session cookies", "try again")
		os.Exit(1)
	}

	set := &session.TokenSet{
		Profile: profile,
		Tokens:  tokens,
		SavedAt: time.Now(),
	}
	if err := manager.Store(set); err != nil {
		ui.PrintError("Failed to store session tokens", err.Error())
		os.Exit(1)
	}

	log.WithField("profile", profile).WithField("tokens", len(tokens)).Info("Session bootstrapped")
	ui.PrintSuccess(fmt.Sprintf("Session stored: %s (%d tokens)", profile, len(tokens)))

	fmt.Println("\nStart harvesting:")
	fmt.Println("  $ jdscraper crawl <keyword>")
	if profile != session.DefaultProfile {
		fmt.Printf("\nUse this profile explicitly:\n  $ jdscraper crawl <keyword> --profile %s\n", profile)
	}
}

func runImport(cmd *cobra.Command, args []string) {
	path := args[0]
	profile := session.DefaultProfile
	if len(args) > 1 {
		profile = strings.TrimSpace(args[1])
	}

	_, manager := authSessionManager()

	data, err := os.ReadFile(path)
	if err != nil {
		ui.PrintError("Failed to read cookies file", err.Error())
		os.Exit(1)
	}

	var tokens []session.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		ui.PrintError("Cookies file is not a JSON cookie array", err.Error())
		os.Exit(1)
	}
	if len(tokens) == 0 {
		ui.PrintError("Cookies file contains no cookies", path)
		os.Exit(1)
	}

	set := &session.TokenSet{
		Profile: profile,
		Tokens:  tokens,
		SavedAt: time.Now(),
	}
	if err := manager.Store(set); err != nil {
		ui.PrintError("Failed to store session tokens", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Session imported: %s (%d tokens from %s)", profile, len(tokens), path))
}

func runSessionList(cmd *cobra.Command, args []string) {
	_, manager := authSessionManager()

	sets, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list sessions", err.Error())
		os.Exit(1)
	}

	if len(sets) == 0 {
		ui.PrintInfo("No stored sessions", "Use 'jdscraper auth bootstrap' to log in")
		return
	}

	ui.PrintHighlight("Stored Sessions")
	fmt.Println()

	for i, set := range sets {
		sanitized := session.SanitizeTokens(set)
		fmt.Printf("%d. Profile: %s\n", i+1, sanitized.Profile)
		fmt.Printf("   Tokens: %d\n", len(sanitized.Tokens))
		fmt.Printf("   Saved: %s\n", sanitized.SavedAt.Format("2006-01-02 15:04:05"))
		for _, tok := range sanitized.Tokens {
			fmt.Printf("     %s = %s\n", tok.Name, tok.Value)
		}
		fmt.Println()
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	_, manager := authSessionManager()

	if len(args) > 0 {
		profile := args[0]
		if err := manager.Delete(profile); err != nil {
			ui.PrintError("Failed to remove session", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Session removed: " + profile)
		return
	}

	sets, err := manager.List()
	if err != nil || len(sets) == 0 {
		ui.PrintError("No stored sessions found", "")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(sets) == 1 {
		set := sets[0]
		fmt.Printf("Remove session '%s'? (y/N): ", set.Profile)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(set.Profile); err != nil {
			ui.PrintError("Failed to remove session", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Session removed: " + set.Profile)
		return
	}

	fmt.Println("Select session to remove:")
	for i, set := range sets {
		fmt.Printf("  %d. %s\n", i+1, set.Profile)
	}
	fmt.Printf("  %d. Remove all sessions\n", len(sets)+1)
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return
	case choice == len(sets)+1:
		fmt.Print("Remove ALL sessions? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove all sessions", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All sessions removed")
	case choice > 0 && choice <= len(sets):
		set := sets[choice-1]
		if err := manager.Delete(set.Profile); err != nil {
			ui.PrintError("Failed to remove session", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Session removed: " + set.Profile)
	default:
		ui.PrintError("Invalid choice", "")
		os.Exit(1)
	}
}
