package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend/internal/app/config"
	"backend/internal/app/dto"
	"backend/internal/app/syncer"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Клиентская служба синхронизации: периодический опрос summary-набора
// с merge-on-refresh в локальный кэш. Необязательный аргумент командной
// строки выполняет поиск по заявкам.
//
// Переменные окружения:
//   - API_BASE_URL — адрес бэкенда (по умолчанию http://localhost:8080)
//   - API_TOKEN    — JWT токен для запросов
func main() {
	log.Println("Sync client start")

	_ = godotenv.Load()
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("ошибка чтения конфигурации: %v", err)
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	api := syncer.NewHTTPClient(baseURL, os.Getenv("API_TOKEN"))
	store := syncer.NewStore()
	service := syncer.New(api, store, cfg.Sync.PollInterval)
	searcher := syncer.NewSearcher(api, 300*time.Millisecond, cfg.Sync.SearchLimit)

	service.Start()
	defer service.Stop()
	defer searcher.Cancel()

	logrus.Infof("polling %s every %s", baseURL, cfg.Sync.PollInterval)

	if len(os.Args) > 1 {
		query := os.Args[1]
		searcher.Query(query, func(results []dto.RequestSummary, err error) {
			if err != nil {
				logrus.Errorf("поиск %q: %v", query, err)
				return
			}
			logrus.Infof("поиск %q: %d заявок", query, len(results))
			for _, r := range results {
				logrus.Infof("  %s  %-22s  %s", r.ID, r.Status, r.ClientName)
			}
		})
	}

	// Периодический отчёт о состоянии кэша до SIGINT/SIGTERM
	report := time.NewTicker(cfg.Sync.PollInterval)
	defer report.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-report.C:
			state := service.SyncState()
			logrus.Infof("sync %s, записей в кэше: %d, последний успешный опрос: %s",
				state.State, store.Len(), state.LastSyncAt.Format(time.RFC3339))
			if state.State == syncer.StateError {
				logrus.Warnf("данные устарели: %s", state.LastError)
			}
		case <-sig:
			log.Println("Sync client down")
			return
		}
	}
}
