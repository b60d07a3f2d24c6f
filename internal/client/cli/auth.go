package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/postbridge/postbridge/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to the interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a username and password and creates a new
// account via the API.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		log.Printf("Registration failed: %s", err.Error())
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and authenticates against the
// server. On success the session tokens live inside the API client and the
// prompt shows the user name. The password byte slice is securely wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		log.Printf("Login failed: %s", err.Error())
		return err
	}

	a.userName = userName
	a.setMode(ModeOnline)
	log.Printf("Logged in as %s", userName)
	return nil
}

// Logout drops the in-memory session. Nothing is kept on disk; the
// server-side refresh session simply expires.
func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	a.userName = ""
	printlnFn("Logged out")
	return nil
}
