package main

//go:generate swag init -g cmd/tracker/main.go -o docs

// @title           Steam Price Tracker API
// @version         0.1.0
// @description     Game catalog, price grades, trend forecasts and watchlists.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
