package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hotelreservas/booking-gateway/internal/config"
	"github.com/hotelreservas/booking-gateway/internal/pkg/jwt"
)

// devtoken prints an access token signed with JWT_SECRET for local testing against the gateway.
func main() {
	userID := flag.Int64("user", 1, "user account id")
	role := flag.String("role", jwt.RoleClient, "ADMIN, EMPLEADO or CLIENTE")
	email := flag.String("email", "", "email claim")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("refusing to mint tokens in production")
	}

	token, err := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL).GenerateAccessToken(*userID, *role, *email)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println(token)
}
