package config

import (
	"context"
	"encoding/base64"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK used for push
// notifications. It returns nil when no credentials are configured, in which
// case pushes are skipped.
func InitFirebase(settings Settings) *firebase.App {
	ctx := context.Background()
	config := &firebase.Config{
		ProjectID: settings.FirebaseProjectID,
	}

	var opt option.ClientOption
	if base64Creds := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); base64Creds != "" {
		log.Printf("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(base64Creds)
		if err != nil {
			log.Printf("Error decoding base64 credentials: %v", err)
			return nil
		}
		opt = option.WithCredentialsJSON(decoded)
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		if _, err := os.Stat(credFile); err != nil {
			log.Printf("Firebase credentials file %s not readable: %v", credFile, err)
			return nil
		}
		log.Printf("Using Firebase credentials file: %s", credFile)
		opt = option.WithCredentialsFile(credFile)
	} else {
		log.Println("Firebase credentials not configured, push notifications disabled")
		return nil
	}

	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		log.Printf("error initializing firebase app: %v", err)
		return nil
	}
	return app
}
