// Command issuetoken prints a bearer token for a club member, signed with JWT_SECRET.
// Membership and login live outside this service; operators use this to hand out
// tokens for testing and for admin accounts.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"clubevents/config"
	"clubevents/internal/adapters/auth"
)

func main() {
	userID := flag.String("user", "", "user id (token subject), required")
	email := flag.String("email", "", "user email")
	roles := flag.String("roles", "", "comma-separated role codes, e.g. admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if strings.TrimSpace(*userID) == "" {
		fmt.Fprintln(os.Stderr, "issuetoken: -user is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "issuetoken:", err)
		os.Exit(1)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*userID, *email, roleList, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issuetoken:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
