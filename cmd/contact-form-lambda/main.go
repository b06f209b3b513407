// Package main provides the Lambda entry point for the website's contact
// form, behind an API Gateway HTTP API.
//
// Configuration (environment):
//   - WEBSITE: form host name (e.g. form.example.com)
//   - ENVIRONMENT: selects the reCAPTCHA secret <environment>_google_captcha_secret
//   - CAPTCHA_SECRET: optional override of the SSM lookup
//   - SSM_CAPTCHA_SECRET_PARAM: optional override of the parameter name
//   - CONTACT_RECIPIENT: address that receives submissions
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/cullancarey/PortfolioWebsite/internal/contactform"
	"github.com/cullancarey/PortfolioWebsite/internal/lambdaboot"
	"github.com/cullancarey/PortfolioWebsite/internal/logging"
)

var formHandler *contactform.Handler

func init() {
	initStart := time.Now()
	logging.Init()

	aws := lambdaboot.InitAWS()
	website := lambdaboot.RequireEnv("WEBSITE")
	recipient := lambdaboot.RequireEnv("CONTACT_RECIPIENT")

	secretParam := logging.EnvOrDefault("SSM_CAPTCHA_SECRET_PARAM", os.Getenv("ENVIRONMENT")+"_google_captcha_secret")
	secret, err := lambdaboot.LoadSecret(context.Background(), aws.SSM, "CAPTCHA_SECRET", secretParam)
	if err != nil {
		log.Fatal().Err(err).Str("param", secretParam).Msg("Failed to load reCAPTCHA secret")
	}

	cfg := contactform.Config{Website: website, Recipient: recipient}
	formHandler = contactform.NewHandler(
		contactform.NewRecaptchaVerifier(secret),
		contactform.NewSESMailer(sesv2.NewFromConfig(aws.Config)),
		cfg,
	)

	lambdaboot.StartupLog("contact-form-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		SSMParam("captchaSecret", secretParam).
		Config("website", website).
		Config("mailDomain", cfg.Domain()).
		Log()
}

func main() {
	mux := http.NewServeMux()
	mux.Handle("/", formHandler)

	adapter := httpadapter.NewV2(mux)
	lambda.Start(adapter.ProxyWithContext)
}
