package main

import "github.com/met-galaxy/field-engine/internal/app"

func main() {
	app.Run()
}
