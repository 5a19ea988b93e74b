package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Checkpoint 人工检查点：阻塞直到操作者确认，不设超时。
// 只有交互模式下的登录流程会调用它
type Checkpoint interface {
	Await(ctx context.Context, prompt string) error
}

// StdinCheckpoint 在终端提示并等待回车。
// 所有提示共用一个读取协程，按顺序逐个应答，提前键入的回车留给下一个提示
type StdinCheckpoint struct {
	In  io.Reader
	Out io.Writer

	startOnce sync.Once
	lines     chan struct{}
	readErr   error
	turnOnce  sync.Once
	turn      chan struct{}
}

// NewStdinCheckpoint 使用标准输入输出
func NewStdinCheckpoint() *StdinCheckpoint {
	return &StdinCheckpoint{In: os.Stdin, Out: os.Stdout}
}

func (c *StdinCheckpoint) Await(ctx context.Context, prompt string) error {
	c.turnOnce.Do(func() { c.turn = make(chan struct{}, 1) })
	select {
	case c.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.turn }()

	c.startOnce.Do(c.startReader)
	fmt.Fprintf(c.Out, "%s\n完成后按回车继续...", prompt)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-c.lines:
		if !ok {
			return c.readErr
		}
		return nil
	}
}

// startReader 逐行读取输入，每行交给一个等待中的提示
func (c *StdinCheckpoint) startReader() {
	c.lines = make(chan struct{})
	go func() {
		defer close(c.lines)
		r := bufio.NewReader(c.In)
		for {
			_, err := r.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					c.readErr = err
				}
				return
			}
			c.lines <- struct{}{}
		}
	}()
}

// CheckpointFunc 函数形式的检查点
type CheckpointFunc func(ctx context.Context, prompt string) error

func (f CheckpointFunc) Await(ctx context.Context, prompt string) error {
	return f(ctx, prompt)
}
