package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/stayline/hotel-admin-backend/internal/config"
	"github.com/stayline/hotel-admin-backend/pkg/jwt"
)

// Issues an access token for a staff member. Staff accounts live in the
// property's identity provider; this tool is for terminals and local testing.
func main() {
	email := flag.String("email", "", "staff email")
	userID := flag.String("user-id", "", "staff user id (random when empty)")
	roles := flag.String("roles", jwt.RoleFrontDesk, "comma-separated roles (admin, front_desk)")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	id := uuid.New()
	if *userID != "" {
		id, err = uuid.Parse(*userID)
		if err != nil {
			log.Fatalf("Invalid -user-id: %v", err)
		}
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		r = strings.TrimSpace(r)
		if r != jwt.RoleAdmin && r != jwt.RoleFrontDesk {
			log.Fatalf("Unknown role %q", r)
		}
		roleList = append(roleList, r)
	}

	service := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)
	token, err := service.GenerateAccessToken(id, *email, roleList)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("user_id=%s\nexpires_in=%s\n\n%s\n", id, cfg.JWT.AccessTokenExpiry, token)
}
