package services

import (
	"testing"
)

func TestPaymentSchedulerStartStop(t *testing.T) {
	cfg := testConfig()
	cfg.Reminder.IntervalHours = 1

	scheduler := NewPaymentSchedulerService(nil, nil, cfg)
	scheduler.Start()

	// Stop завершает фоновую горутину; повторный вызов не паникует
	scheduler.Stop()
	scheduler.Stop()
}
