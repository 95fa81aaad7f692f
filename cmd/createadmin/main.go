package main

import (
	"flag"
	"log"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/internal/pkg/database"
	"github.com/bachesrosario/baches-api/internal/pkg/env"
)

// Promotes an existing account to admin, or creates a fresh verified
// admin account when the email is unknown.
func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "password for a newly created account")
	name := flag.String("name", "Admin", "first name for a newly created account")
	surname := flag.String("surname", "User", "surname for a newly created account")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	env.SetupEnvFile()
	database.SetupDatabase()
	db := database.GetDB()

	var user models.User
	err := db.Where("email = ?", models.NormalizeEmail(*email)).First(&user).Error
	if err == nil {
		user.Role = models.ROLE_ADMIN
		if err := db.Save(&user).Error; err != nil {
			log.Fatalf("promoting user: %v", err)
		}
		log.Printf("user %d (%s) promoted to admin", user.ID, user.Email)
		return
	}

	if *password == "" {
		log.Fatal("-password is required when the account does not exist yet")
	}

	created, err := models.CreateUser(*email, *password, *name, *surname)
	if err != nil {
		log.Fatalf("building admin account: %v", err)
	}
	created.Role = models.ROLE_ADMIN
	created.EmailVerified = true

	if err := db.Create(created).Error; err != nil {
		log.Fatalf("creating admin account: %v", err)
	}
	log.Printf("admin account %d (%s) created", created.ID, created.Email)
}
