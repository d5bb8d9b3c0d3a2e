package main

import (
	"fmt"
	"log"

	"backend/internal/app/ds"
	"backend/internal/app/dsn"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	db, err := gorm.Open(postgres.Open(dsn.FromEnv()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	var requests []ds.QuoteRequest
	err = db.Find(&requests).Error
	if err != nil {
		log.Fatal("Failed to get requests:", err)
	}

	fmt.Println("Requests in database:")
	for _, r := range requests {
		fmt.Printf("ID: %s, Client: %s, Status: %s, Priority: %s\n",
			r.ID, r.ClientName, r.Status, r.Priority)
	}
}
