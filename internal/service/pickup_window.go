package service

import (
	"time"

	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/models"
)

// PickupWindowValidator 支付前的取件时间校验
type PickupWindowValidator interface {
	Validate(order *models.DeliveryOrder, at time.Time) error
}

// BusinessHoursValidator 按营业时间校验取件时间
type BusinessHoursValidator struct {
	cfg      config.BusinessHoursConfig
	location *time.Location
}

// NewBusinessHoursValidator 创建营业时间校验器
func NewBusinessHoursValidator(cfg config.BusinessHoursConfig) *BusinessHoursValidator {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		location = time.UTC
	}
	return &BusinessHoursValidator{cfg: cfg, location: location}
}

// Validate 未启用时总是放行
func (v *BusinessHoursValidator) Validate(order *models.DeliveryOrder, at time.Time) error {
	if v == nil || !v.cfg.Enabled {
		return nil
	}
	local := at.In(v.location)
	if len(v.cfg.Weekdays) > 0 && !containsWeekday(v.cfg.Weekdays, local.Weekday()) {
		return ErrPickupWindowClosed
	}
	hour := local.Hour()
	if hour < v.cfg.OpenHour || hour >= v.cfg.CloseHour {
		return ErrPickupWindowClosed
	}
	return nil
}

func containsWeekday(days []int, day time.Weekday) bool {
	for _, d := range days {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}
