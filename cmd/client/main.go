package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	baseURL string
	client  *Client
)

type UploadResponse struct {
	Filename    string `json:"filename"`
	ShortCode   string `json:"short_code"`
	DownloadURL string `json:"download_url"`
}

type FileRecord struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	ShortCode   string `json:"short_code"`
	ContentType string `json:"content_type"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	DownloadURL string `json:"download_url"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

// Upload sends one or more local files as a single multipart batch.
func (c *Client) Upload(paths []string, expiration string) (*UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}

		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			file.Close()
			return nil, err
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		file.Close()
	}

	if expiration != "" {
		if err := writer.WriteField("expiration", expiration); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Post(c.BaseURL+"upload", writer.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var result UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return &result, nil
}

// List fetches every record from the admin listing.
func (c *Client) List() ([]FileRecord, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "api/admin/files")
	if err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var records []FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return records, nil
}

// Delete removes a file by its numeric id.
func (c *Client) Delete(id string) error {
	req, err := http.NewRequest(http.MethodDelete, c.BaseURL+"api/admin/files/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("file %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

// Fetch downloads the bytes behind a short code.
func (c *Client) Fetch(code string, w io.Writer) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + code)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("file %s not found or expired", code)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

var rootCmd = &cobra.Command{
	Use:   "filebox",
	Short: "filebox client - upload and manage files",
	Long: `filebox client is a command-line tool for a filebox server.

Quick start:
  filebox upload file.txt                       # Upload a file, never expires
  filebox upload -e 7d a.txt b.txt              # Upload two files as one archive
  filebox fetch abc123 > file.txt               # Download by short code
  filebox list                                  # List all stored files
  filebox delete 42                             # Delete by numeric id
  filebox config set server https://box.example.com/`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		baseURL = viper.GetString("server")
		if baseURL == "" {
			baseURL = "http://localhost:8080/"
		}
		client = NewClient(baseURL)
	},
}

var uploadCmd = &cobra.Command{
	Use:     "upload <file> [file...]",
	Aliases: []string{"u", "up"},
	Short:   "Upload one or more files",
	Long: `Upload files to the filebox server.

More than one file is bundled into a single zip archive reachable under one
short code.

Expiration choices: 1d, 7d, 1m, never (default).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expiration, _ := cmd.Flags().GetString("expiration")

		resp, err := client.Upload(args, expiration)
		if err != nil {
			return fmt.Errorf("error uploading: %w", err)
		}

		fmt.Printf("Upload successful!\n")
		fmt.Printf("Filename: %s\n", resp.Filename)
		fmt.Printf("Code: %s\n", resp.ShortCode)
		fmt.Printf("URL: %s\n", baseURL+strings.TrimPrefix(resp.DownloadURL, "/"))
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:     "fetch <code>",
	Aliases: []string{"f", "get"},
	Short:   "Download a file by short code to stdout",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.Fetch(args[0], os.Stdout)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l", "ls"},
	Short:   "List all stored files",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := client.List()
		if err != nil {
			return fmt.Errorf("error listing files: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No files stored")
			return nil
		}

		for _, r := range records {
			expires := "never"
			if r.ExpiresAt != "" {
				expires = r.ExpiresAt
			}
			fmt.Printf("%d\t%s\t%s\t%s\texpires: %s\n", r.ID, r.ShortCode, r.Filename, r.ContentType, expires)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"d", "del"},
	Short:   "Delete a stored file by numeric id",
	Long: `Delete a file and its registry record using the numeric id shown by
"filebox list".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Delete(args[0]); err != nil {
			return fmt.Errorf("error deleting file: %w", err)
		}

		fmt.Printf("File %s deleted successfully!\n", args[0])
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"c", "cfg"},
	Short:   "Manage client configuration",
	Long: `Manage client configuration settings like the server URL.

Configuration is stored in ~/.filebox/config.yaml`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set(args[0], args[1])
		if err := viper.WriteConfig(); err != nil {
			return fmt.Errorf("error saving configuration: %w", err)
		}

		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := viper.GetString(args[0])
		if value == "" {
			fmt.Printf("%s is not set\n", args[0])
		} else {
			fmt.Printf("%s = %s\n", args[0], value)
		}
		return nil
	},
}

func init() {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".filebox")
	os.MkdirAll(configDir, 0o755)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore errors if config file doesn't exist

	rootCmd.PersistentFlags().StringP("server", "s", "", "Server URL (default: http://localhost:8080/)")
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))

	uploadCmd.Flags().StringP("expiration", "e", "", "Expiration choice: 1d, 7d, 1m or never")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
