package conf

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
)

// Load 读取配置文件并叠加环境变量，path 为空时只使用默认值和环境变量
func Load(path string) (*Bootstrap, error) {
	bc := Default()

	if path != "" {
		c := config.New(
			config.WithSource(
				file.NewSource(path),
			),
		)
		defer c.Close()

		if err := c.Load(); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := c.Scan(bc); err != nil {
			return nil, fmt.Errorf("scan config %s: %w", path, err)
		}
	}

	if err := bc.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := bc.Validate(); err != nil {
		return nil, err
	}
	return bc, nil
}
