// Command admintoken issues access tokens for operators of the payout API.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/infrastructure/auth"
	"github.com/payout/backend/internal/infrastructure/config"
)

var knownPermissions = []string{
	auth.PermissionPayoutRead,
	auth.PermissionPayoutApprove,
	auth.PermissionPayoutManage,
}

func main() {
	var (
		userID      string
		username    string
		permissions string
		ttl         time.Duration
	)
	flag.StringVar(&userID, "user", "", "Operator user ID (UUID, generated when empty)")
	flag.StringVar(&username, "name", "", "Operator username (required)")
	flag.StringVar(&permissions, "perms", auth.PermissionPayoutRead, "Comma separated permissions: "+strings.Join(knownPermissions, ", "))
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: jwt.access_token_expiration)")
	flag.Parse()

	if username == "" {
		fail("-name is required")
	}

	id := uuid.New()
	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			fail("invalid -user: %v", err)
		}
		id = parsed
	}

	perms, err := parsePermissions(permissions)
	if err != nil {
		fail("%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("failed to load configuration: %v", err)
	}
	if ttl > 0 {
		cfg.JWT.AccessTokenExpiration = ttl
	}

	token, expiresAt, err := auth.NewJWTService(cfg.JWT).GenerateAccessToken(auth.GenerateTokenInput{
		UserID:      id,
		Username:    username,
		Permissions: perms,
	})
	if err != nil {
		fail("failed to sign token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user_id:     %s\n", id)
	fmt.Fprintf(os.Stderr, "permissions: %s\n", strings.Join(perms, ","))
	fmt.Fprintf(os.Stderr, "expires_at:  %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

// parsePermissions splits a comma separated list and rejects unknown names
func parsePermissions(raw string) ([]string, error) {
	var perms []string
	for p := range strings.SplitSeq(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !slices.Contains(knownPermissions, p) {
			return nil, fmt.Errorf("unknown permission %q (known: %s)", p, strings.Join(knownPermissions, ", "))
		}
		if !slices.Contains(perms, p) {
			perms = append(perms, p)
		}
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("at least one permission is required")
	}
	return perms, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "admintoken: "+format+"\n", args...)
	os.Exit(1)
}
