package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/khoahotran/blog-search/internal/config"
	"github.com/khoahotran/blog-search/pkg/auth"
)

func main() {
	subject := flag.String("subject", "ops", "token subject")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	token, err := jwtSvc.GenerateToken(*subject, auth.RoleAdmin)
	if err != nil {
		log.Fatalf("cannot issue token: %v", err)
	}
	fmt.Println(token)
}
