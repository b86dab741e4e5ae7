package database

import (
	"fmt"
	"log"

	"launchpad_backend/internal/config"
	"launchpad_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.UserProgressDocument{},
		&model.ProjectDocument{},
		&model.ResourceRecord{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	if err := seedResourceCatalog(db); err != nil {
		return nil, err
	}

	return db, nil
}

// seedResourceCatalog 首次启动时写入默认资源目录
func seedResourceCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.ResourceRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, r := range model.DefaultResourceCatalog() {
		rec := &model.ResourceRecord{}
		if err := rec.FromResource(&r); err != nil {
			return err
		}
		if err := db.Create(rec).Error; err != nil {
			return err
		}
	}
	return nil
}
