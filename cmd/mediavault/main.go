// Package main 启动 mediavault 服务与运维命令.
package main

import (
	"fmt"
	"os"

	"github.com/yeisme/mediavault/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
