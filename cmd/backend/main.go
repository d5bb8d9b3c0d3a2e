package main

import (
	"backend/internal/api"
	"log"
)

// @title Request Pipeline API
// @version 1.0
// @description Бэкенд конвейера согласования заявок на осевые агрегаты и колёса

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	log.Println("App start")
	api.StartServer()
	log.Println("App terminated")
}
