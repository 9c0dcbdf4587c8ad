package cli

import (
	"context"
	"fmt"
	"os"
)

// Register prompts for credentials and creates an account, then logs in.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.store.Register(ctx, username, string(password)); err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}

	fmt.Println("Account created.")
	return a.finishLogin(ctx, username, string(password))
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	return a.finishLogin(ctx, username, string(password))
}

func (a *App) finishLogin(ctx context.Context, username, password string) error {
	if err := a.store.Login(ctx, username, password); err != nil {
		fmt.Println("Login failed:", err)
		return err
	}

	profile, err := a.store.Profile(ctx)
	if err != nil {
		fmt.Println("Failed to load profile:", err)
		return err
	}

	a.startSession(ctx, profile.ID, profile.Username)
	fmt.Printf("Logged in as %s.\n", profile.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.endSession()
	fmt.Println("Logged out.")
	return nil
}
