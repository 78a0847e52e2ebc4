package main

import (
	"context"
	"log"
	"os"

	"closetapi/dbhelper"
	"closetapi/services"
	"closetapi/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"
)

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{

		LogLevel: asynq.InfoLevel,
	})

	scheduled := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "0 7 * * *", // 7:00 AM daily, before people get dressed
			task: mustTask(tasks.NewDailyOutfitAlertTask()),
			desc: "Daily outfit notifications",
		},
	}

	for _, t := range scheduled {
		entryID, err := scheduler.Register(t.cron, t.task)
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.desc, entryID, t.cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func mustTask(task *asynq.Task, err error) *asynq.Task {
	if err != nil {
		log.Fatalf("Failed to build task: %v", err)
	}
	return task
}

func main() {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			"plan": 7,
		}},
	)
	weatherProvider := services.NewOpenMeteoProvider()
	app, err := firebase.NewApp(context.Background(), nil)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
		return
	}

	mux := asynq.NewServeMux()
	db := dbhelper.SetupDB()
	mux.HandleFunc(tasks.TypePlanRange, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandlePlanRangeTask(ctx, t, db, weatherProvider, app)
	})
	mux.HandleFunc(tasks.TypeDailyOutfitAlert, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleDailyOutfitAlertTask(ctx, t, db, app)
	})

	go runScheduler()
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
