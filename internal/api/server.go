package api

import (
	"context"
	"log"

	"backend/internal/pkg"

	"github.com/sirupsen/logrus"
)

// StartServer собирает приложение и запускает HTTP-сервер
func StartServer() {
	log.Println("Starting server")

	app, err := pkg.NewApp(context.Background())
	if err != nil {
		logrus.Fatalf("ошибка инициализации приложения: %v", err)
	}

	app.RunApp()

	log.Println("Server down")
}
