package main

import (
	"context"
	"time"

	"github.com/safe4law/safe4law/internal/app"
)

// @title           Safe4Law API
// @version         1.0
// @description     Safe4Law shares legal documents behind an access key and handles accounts and password recovery.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  CookieAuth
// @in cookie
// @name token
func main() {
	application := app.New()
	wait := application.Start()
	<-wait
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx)
}
