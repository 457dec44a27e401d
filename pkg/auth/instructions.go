package auth

import (
	"fmt"
	"io"
	"strings"
)

// AccountSettingsURL is where users create an API token
const AccountSettingsURL = "https://www.kaggle.com/settings/account"

// MissingCredentialsHelp explains how to obtain kaggle.json for path
func MissingCredentialsHelp(path string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please download kaggle.json from %s\n", AccountSettingsURL)
	fmt.Fprintf(&b, "and place it at %s\n", path)
	b.WriteString("or run 'kagglefetch auth login' to create it.")
	return b.String()
}

// ShowSetupGuide prints step-by-step instructions for creating an API token
func ShowSetupGuide(w io.Writer, path string) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "KAGGLE API TOKEN SETUP")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Sign in to Kaggle and open your account settings")
	fmt.Fprintf(w, "   %s\n", AccountSettingsURL)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: In the 'API' section click 'Create New Token'")
	fmt.Fprintln(w, "   Your browser downloads kaggle.json containing your username and key.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Either move that file to")
	fmt.Fprintf(w, "   %s\n", path)
	fmt.Fprintln(w, "   or enter the username and key below.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "NOTES:")
	fmt.Fprintln(w, "   - Creating a new token expires the previous one")
	fmt.Fprintln(w, "   - Competition downloads require accepting the rules on the website first")
	fmt.Fprintln(w, "   - The key grants API access to your account; never share it")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
}
