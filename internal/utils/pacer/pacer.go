package pacer

import (
	"time"
)

// Pace 限速执行：运行work并测量耗时，不足min则补足睡眠后返回work的结果；
// 超过min则立即返回。用于把批处理节流到约每min一批（近似请求/窗口预算）。
func Pace(min time.Duration, work func() error) error {
	begin := time.Now()
	err := work()
	if remain := min - time.Since(begin); remain > 0 {
		time.Sleep(remain)
	}
	return err
}
