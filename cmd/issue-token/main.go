package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/service"
)

// issue-token mints a signed token for an admin or learner. Identity lives in
// an upstream system; this is for local development and operator access.
func main() {
	var (
		tokenType   string
		userID      string
		permissions string
		ttl         time.Duration
	)
	flag.StringVar(&tokenType, "type", "admin", "Token type: admin or learner")
	flag.StringVar(&userID, "user", "", "User id to embed as the subject")
	flag.StringVar(&permissions, "perms", "all", "Comma-separated admin permissions, or \"all\"")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRY_HOURS)")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	authService := service.NewAuthService(cfg, nil)

	// ─── CLI Input ─────────────────────────────────────────────────────
	if userID == "" {
		fmt.Print("Enter User ID: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		userID = strings.TrimSpace(line)
	}
	if userID == "" {
		fmt.Println("Error: User ID is required")
		os.Exit(1)
	}

	var typ service.TokenType
	var perms []string
	switch tokenType {
	case "admin":
		typ = service.TokenTypeAdmin
		var err error
		if perms, err = parsePermissions(permissions); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	case "learner":
		typ = service.TokenTypeLearner
	default:
		fmt.Printf("Error: unknown token type %q\n", tokenType)
		os.Exit(1)
	}

	token, err := authService.IssueToken(typ, userID, perms, ttl)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func parsePermissions(raw string) ([]string, error) {
	if raw == "all" {
		out := make([]string, len(model.AllPermissions))
		for i, p := range model.AllPermissions {
			out[i] = string(p)
		}
		return out, nil
	}

	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !model.Permission(p).Valid() {
			return nil, fmt.Errorf("unknown permission %q", p)
		}
		out = append(out, p)
	}
	return out, nil
}
