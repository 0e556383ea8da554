package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL  string
	Email    string
	Password string
}

var config Config

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Failed to load .env: %v", err)
	}
	config = Config{
		BaseURL:  os.Getenv("HR_API_URL"),
		Email:    os.Getenv("HR_API_EMAIL"),
		Password: os.Getenv("HR_API_PASSWORD"),
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000/astrellect/v1"
	}
}

// Logs in with the configured credentials and prints the caller's profile.
func main() {
	if config.Email == "" || config.Password == "" {
		log.Fatal("HR_API_EMAIL and HR_API_PASSWORD must be set")
	}
	client := &http.Client{Timeout: 10 * time.Second}

	token, err := login(client)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, config.BaseURL+"/employees/get-me", nil)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s\n%s\n", resp.Status, body)
}

func login(client *http.Client) (string, error) {
	form := url.Values{"username": {config.Email}, "password": {config.Password}}
	resp, err := client.Post(config.BaseURL+"/auth/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %s: %s", resp.Status, body)
	}
	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	return tokenResp.AccessToken, nil
}
