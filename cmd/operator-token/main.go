package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	pkgAuth "github.com/angelmondragon/devicehub-backend/pkg/auth"
	"github.com/angelmondragon/devicehub-backend/pkg/config"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
)

// operator-token mints a bearer token for the operator console. Only the JWT
// settings are read, so it runs without database or redis access.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "operator-token", Output: os.Stderr})

	_ = godotenv.Load()

	name := flag.String("name", "", "operator display name")
	role := flag.String("role", string(enums.OperatorRoleOperator), "operator role: operator|viewer")
	id := flag.String("id", "", "operator id (uuid); generated when empty")
	flag.Parse()

	var jwtCfg config.JWTConfig
	if err := config.LoadSection(&jwtCfg); err != nil {
		logg.Error(ctx, "failed to load jwt config", err)
		os.Exit(1)
	}

	parsedRole, err := enums.ParseOperatorRole(strings.ToLower(strings.TrimSpace(*role)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	operatorID := uuid.New()
	if strings.TrimSpace(*id) != "" {
		if operatorID, err = uuid.Parse(strings.TrimSpace(*id)); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -id: %v\n", err)
			os.Exit(1)
		}
	}

	signer, err := pkgAuth.NewSigner(jwtCfg)
	if err != nil {
		logg.Error(ctx, "invalid jwt config", err)
		os.Exit(1)
	}
	token, err := signer.Mint(time.Now(), pkgAuth.OperatorTokenPayload{
		OperatorID: operatorID,
		Name:       *name,
		Role:       parsedRole,
	})
	if err != nil {
		logg.Error(ctx, "failed to mint operator token", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"operator_id": operatorID.String(),
		"role":        string(parsedRole),
		"expires_in":  fmt.Sprintf("%dm", jwtCfg.ExpirationMinutes),
	}), "operator token minted")
	fmt.Println(token)
}
