package main

import (
	"context"

	"github.com/joho/godotenv"
)

func main() {
	// .env нужен только для локального запуска, в контейнере его нет.
	_ = godotenv.Load()

	app := mustBootstrapCargoAPI()
	defer app.Close()

	if err := app.Run(); err != nil && err != context.Canceled {
		panic(err)
	}
}
