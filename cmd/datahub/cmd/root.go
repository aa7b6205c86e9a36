package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/3Eeeecho/go-datahub/internal/apiclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer   = "http://localhost:8080"
	credentialsFile = "credentials.json"
)

// cli 命令共享的设置, 优先级: 命令行参数 > DATAHUB_* 环境变量 > <config-dir>/config.json
type cli struct {
	v *viper.Viper
}

type credentials struct {
	Token string `json:"token"`
}

func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "datahub",
		Short:         "Manage datasets on a datahub server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfigFile()
		},
	}

	home, _ := os.UserHomeDir()
	flags := root.PersistentFlags()
	flags.String("server", defaultServer, "datahub server URL (env DATAHUB_SERVER)")
	flags.String("token", "", "admin token (env DATAHUB_TOKEN), defaults to the saved login")
	flags.String("config-dir", filepath.Join(home, ".datahub"), "directory for config.json and saved credentials")
	for _, name := range []string{"server", "token", "config-dir"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	// DATAHUB_CONFIG_DIR 对应 config-dir
	c.v.SetEnvPrefix("DATAHUB")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		LoginCmd(c),
		LogoutCmd(c),
		WhoamiCmd(c),
		ListCmd(c),
		InfoCmd(c),
		CreateCmd(c),
		DeleteCmd(c),
		LsCmd(c),
		TreeCmd(c),
		PreviewCmd(c),
		UploadCmd(c),
	)
	return root
}

func (c *cli) configDir() string {
	return c.v.GetString("config-dir")
}

// loadConfigFile 读取 config.json 中的 server 等默认值, 文件不存在不算错误
func (c *cli) loadConfigFile() error {
	path := filepath.Join(c.configDir(), "config.json")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func (c *cli) token() string {
	if t := c.v.GetString("token"); t != "" {
		return t
	}
	creds, err := c.loadCredentials()
	if err != nil {
		return ""
	}
	return creds.Token
}

func (c *cli) client() *apiclient.Client {
	return apiclient.New(c.v.GetString("server"), c.token())
}

// requireToken 写操作前确认已登录
func (c *cli) requireToken() error {
	if c.token() == "" {
		return errors.New("not logged in, run: datahub login")
	}
	return nil
}

func (c *cli) loadCredentials() (*credentials, error) {
	data, err := os.ReadFile(filepath.Join(c.configDir(), credentialsFile))
	if err != nil {
		return nil, err
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// saveCredentials 凭据文件只允许当前用户读写
func (c *cli) saveCredentials(creds *credentials) error {
	if err := os.MkdirAll(c.configDir(), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir(), credentialsFile), data, 0o600)
}
