package main

import (
	"log"

	"jobby/cmd"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
