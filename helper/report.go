package helper

import (
	"fmt"
	"log"
	"time"

	"shop_backend/database"
	"shop_backend/model"
	"shop_backend/notify"

	"github.com/go-co-op/gocron/v2"
)

var reportScheduler gocron.Scheduler

// DailySalesSummary aggregates yesterday's paid orders and mails the
// numbers to ops.
func DailySalesSummary(dispatcher *notify.Dispatcher) {
	log.Println("[CRON] DailySalesSummary triggered")

	db := database.DB
	if db == nil {
		return
	}

	today := time.Now().Truncate(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	var count int64
	var revenue float64
	row := db.Model(&model.Order{}).
		Where("created_at >= ? AND created_at < ? AND order_status <> ?",
			yesterday, today, model.OrderCancelled).
		Select("COUNT(*), COALESCE(SUM(payment_amount), 0)").Row()
	if err := row.Scan(&count, &revenue); err != nil {
		log.Printf("sales summary query failed: %v", err)
		return
	}

	body := fmt.Sprintf("Orders: %d\nRevenue: %.2f\nDay: %s",
		count, revenue, yesterday.Format("2006-01-02"))
	if dispatcher != nil {
		dispatcher.Alert("Daily sales summary "+yesterday.Format("2006-01-02"), body)
	}
	log.Printf("sales summary for %s: %d orders, %.2f revenue",
		yesterday.Format("2006-01-02"), count, revenue)
}

func StartReportScheduler(dispatcher *notify.Dispatcher) {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal(err)
	}

	reportScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 5, 0),
			),
		),
		gocron.NewTask(func() { DailySalesSummary(dispatcher) }),
	)
	if err != nil {
		log.Fatal(err)
	}

	s.Start()
	log.Println("daily sales report scheduler started (00:05)")
}

func StopReportScheduler() {
	if reportScheduler != nil {
		_ = reportScheduler.Shutdown()
	}
}
