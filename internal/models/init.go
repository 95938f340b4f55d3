package models

import (
	"strings"

	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultStaff 初始化默认员工账号
func InitDefaultStaff(username, password string) error {
	var count int64
	if err := DB.Model(&Staff{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if strings.TrimSpace(username) == "" {
		username = "admin"
	}
	defaultPassword := password == ""
	if defaultPassword {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	staff := Staff{
		Username:     username,
		PasswordHash: string(hash),
		Role:         constants.StaffRoleFinance,
		IsSuper:      true,
	}
	if err := DB.Create(&staff).Error; err != nil {
		return err
	}

	if defaultPassword {
		logger.Warnw("default_staff_created_with_default_password", "username", username)
	} else {
		logger.Warnw("default_staff_created", "username", username, "password_hidden", true)
	}
	return nil
}
