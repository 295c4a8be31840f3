// cmd/main.go
package main

import (
	"expense-ledger-api/app"
)

// @title           Expense Ledger API
// @version         1.0
// @description     Balance and transfer consistency engine for per-user expense ledgers.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
