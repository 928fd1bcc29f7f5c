// Command createadmin seeds an administrator account. Admin accounts are
// never created through the public API.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"govconnect-be/config"
	"govconnect-be/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	name := os.Getenv("ADMIN_NAME")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	if name == "" {
		name = "Administrator"
	}

	admin := models.User{
		Name:      name,
		Email:     email,
		Password:  password,
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := admin.HashPassword(); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	userCollection := config.GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":      admin.Name,
		"password":  admin.Password,
		"role":      admin.Role,
		"updatedAt": admin.UpdatedAt,
	}, "$setOnInsert": bson.M{
		"createdAt": admin.CreatedAt,
	}}

	_, err := userCollection.UpdateOne(ctx, bson.M{"email": admin.Email}, update, options.Update().SetUpsert(true))
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	log.Printf("Admin account ready: %s", admin.Email)
}
