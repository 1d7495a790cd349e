// cmd/main.go
package main

import (
	"go-session-api/app"
)

// @title           Go Session API
// @version         1.0
// @description     User authentication with per-device refresh token sessions.

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
