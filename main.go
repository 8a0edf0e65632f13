package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// 通知正在运行的看板服务重新加载数据集并重新打开日志:
//
//	go run . [pid 文件]
func main() {
	pidFile := "bikeshare.pid"
	if len(os.Args) > 1 {
		pidFile = os.Args[1]
	} else if v := os.Getenv("BIKE_PID_FILE"); v != "" {
		pidFile = v
	}

	pid, err := readPid(pidFile)
	if err != nil {
		log.Fatal("Failed to read pid file:", err)
	}

	// 向服务进程发送 SIGHUP
	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
	fmt.Printf("SIGHUP sent to %d\n", pid)
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s: %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}
