package utils

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	USERNAME_MIN_LEN = 3
	USERNAME_MAX_LEN = 64
)

func SanitizeEmail(email string) string {
	email = strings.ToLower(email)
	email = strings.Trim(email, " \n\r")
	return email
}

// CheckEmailFormat to check if input string is a correct email address
func CheckEmailFormat(email string) bool {
	if len(email) > 254 {
		return false
	}
	_, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// additional regex check for correct email format
	emailRule := regexp.MustCompile(`^[a-zA-Z0-9._%+'-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRule.MatchString(email)
}

// CheckUsernameFormat rejects usernames that are too short, too long or
// carry characters that would not survive a URL path segment.
func CheckUsernameFormat(username string) bool {
	ul := len(username)
	if ul < USERNAME_MIN_LEN || ul > USERNAME_MAX_LEN {
		return false
	}
	usernameRule := regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	return usernameRule.MatchString(username)
}

// BlurEmailAddress transforms an email address to reduce exposed personal info
func BlurEmailAddress(email string) string {
	items := strings.Split(email, "@")
	if len(items) < 1 || len(items[0]) < 1 {
		return "****@**"
	}

	blurredEmail := string([]rune(items[0])[0]) + "****@" + strings.Join(items[1:], "")
	return blurredEmail
}
