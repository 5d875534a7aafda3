package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/edulend/loan-management/internal/auth"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"repayments", "loan_applications", "financial_profile_documents", "financial_profiles", "user_documents", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := auth.HashPassword("password", cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		adminID := seedUser(db, "admin@edulend.io", "Portal", "Admin", "admin", hash)
		studentID := seedUser(db, "amina@student.edu", "Amina", "Student", "student", hash)

		seedDocument(db, studentID, "identity", "passport.pdf", "uploads/"+studentID+"/passport.pdf")
		seedDocument(db, studentID, "financial", "bank-statement.pdf", "uploads/"+studentID+"/bank-statement.pdf")

		var profileCount int64
		db.Table("financial_profiles").Where("user_id = ?", studentID).Count(&profileCount)
		if profileCount == 0 {
			if err := db.Exec(
				"INSERT INTO financial_profiles (user_id, annual_income, employment_state, submitted_at) VALUES (?, ?, ?, now())",
				studentID, "18000", "part_time").Error; err != nil {
				log.Fatalf("failed to insert financial profile: %v", err)
			}
			fmt.Println("Seeded financial profile for:", studentID)
		}

		fmt.Println("Seed complete. Admin:", adminID, "Student:", studentID)
	},
}

func seedUser(db *gorm.DB, email, firstName, lastName, role, passwordHash string) string {
	var id string
	row := db.Raw("SELECT id FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&id); err == nil {
		fmt.Println("user already exists:", email)
		return id
	}

	id = uuid.NewString()
	if err := db.Exec(
		"INSERT INTO users (id, email, first_name, last_name, role, password_hash, is_verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, true, now(), now())",
		id, email, firstName, lastName, role, passwordHash).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
	return id
}

func seedDocument(db *gorm.DB, userID, category, fileName, storagePath string) {
	var exists int
	row := db.Raw("SELECT 1 FROM user_documents WHERE user_id = ? AND storage_path = ?", userID, storagePath).Row()
	if err := row.Scan(&exists); err == nil {
		return
	}

	if err := db.Exec(
		"INSERT INTO user_documents (user_id, category, file_name, storage_path, uploaded_at) VALUES (?, ?, ?, ?, now())",
		userID, category, fileName, storagePath).Error; err != nil {
		log.Fatalf("failed to insert document %s: %v", fileName, err)
	}
	fmt.Println("Seeded document:", fileName)
}
