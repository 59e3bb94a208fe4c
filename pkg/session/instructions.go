package session

import (
	"fmt"
	"strings"
)

// ShowBootstrapGuide displays step-by-step instructions for capturing a
// storefront session
func ShowBootstrapGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 STOREFRONT SESSION BOOTSTRAP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("Search pages behind the login wall need a signed-in session.")
	fmt.Println("The bootstrap flow captures one for you:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Run the bootstrap command")
	fmt.Println("   - jdscraper auth bootstrap")
	fmt.Println("   - A visible browser window opens on the storefront login portal")
	fmt.Println()

	fmt.Println("🔑 STEP 2: Log in as you normally would")
	fmt.Println("   - QR code, SMS code and partner-site logins all work")
	fmt.Println("   - Take your time; the tool waits until the login portal is gone")
	fmt.Println()

	fmt.Println("🍪 STEP 3: Wait for capture")
	fmt.Println("   - Once you land back on the storefront, the session cookies are")
	fmt.Println("     read from the browser automatically")
	fmt.Println("   - They are normalized and saved to your configured token store")
	fmt.Println()

	fmt.Println("📦 ALTERNATIVE: Import an existing cookies.json")
	fmt.Println("   - jdscraper auth import --file ./cookies.json")
	fmt.Println("   - The file must hold a JSON array of cookie objects with")
	fmt.Println("     domain, name, value, expires, path, httpOnly, HostOnly, Secure")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Sessions expire after a while; re-run bootstrap when crawls")
	fmt.Println("     start hitting the login wall on every page")
	fmt.Println("   • Use a secondary account for scraping to keep your main")
	fmt.Println("     account out of any anti-bot flags")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These cookies give FULL access to the signed-in account")
	fmt.Println("   • NEVER share them with anyone")
	fmt.Println("   • Store them securely (the keyring and encrypted stores do)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickBootstrapGuide shows a condensed version for experienced users
func ShowQuickBootstrapGuide() {
	fmt.Println("\n🍪 Quick Guide: jdscraper auth bootstrap → log in → wait for capture")
	fmt.Println("   Or import existing cookies: jdscraper auth import --file cookies.json")
	fmt.Println("   Type 'help' for detailed instructions")
}
