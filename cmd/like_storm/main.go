package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

var (
	baseURL    = flag.String("base", "http://localhost:8080", "服务地址")
	totalUsers = flag.Int("users", 100, "并发点赞用户数 (注意服务端 rate_limit)")
	otpCode    = flag.String("code", "123456", "app.test_otp_code 固定验证码")

	httpClient *http.Client
)

func init() {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func main() {
	flag.Parse()
	n := *totalUsers

	// 1. 注册用户 (服务端需配置固定验证码)
	fmt.Printf("注册 %d 个用户...\n", n)
	tokens := make([]string, n)
	run := time.Now().UnixNano() % 10000
	for i := 0; i < n; i++ {
		token, err := register(fmt.Sprintf("+86139%04d%04d", run, i))
		if err != nil {
			fmt.Printf("注册用户 %d 失败: %v\n", i, err)
			os.Exit(1)
		}
		tokens[i] = token
	}

	// 2. 第一个用户发帖
	postID, err := createPost(tokens[0])
	if err != nil {
		fmt.Printf("发帖失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("开始压测：%d 个用户同时点赞 (PostID: %s)...\n", n, postID)

	// 3. 并发点赞
	var wg sync.WaitGroup
	successCount := 0
	failCount := 0
	var mu sync.Mutex

	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			ok := like(token, postID)
			mu.Lock()
			if ok {
				successCount++
			} else {
				failCount++
			}
			mu.Unlock()
		}(tokens[i])
	}
	wg.Wait()
	duration := time.Since(start)

	// 4. 校验计数
	likeCount, err := fetchLikeCount(tokens[0], postID)
	if err != nil {
		fmt.Printf("读取帖子失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d\n", n)
	fmt.Printf("QPS: %.2f\n", float64(n)/duration.Seconds())
	fmt.Printf("点赞成功: %d\n", successCount)
	fmt.Printf("点赞失败: %d\n", failCount)
	fmt.Printf("likeCount: %d (预期: %d)\n", likeCount, successCount)
	fmt.Println("--------------------------------------------------")

	if likeCount != int64(successCount) {
		os.Exit(2)
	}
}

func call(method, path, token string, payload interface{}) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, *baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		return &env, fmt.Errorf("status %d code %d: %s", resp.StatusCode, env.Code, env.Message)
	}
	return &env, nil
}

func register(phone string) (string, error) {
	if _, err := call(http.MethodPost, "/auth/otp", "", map[string]string{"phoneNumber": phone}); err != nil {
		return "", err
	}
	env, err := call(http.MethodPost, "/auth/register", "", map[string]string{
		"phoneNumber": phone,
		"code":        *otpCode,
		"username":    "storm_" + phone[1:],
		"email":       phone[1:] + "@storm.local",
	})
	if err != nil {
		return "", err
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func createPost(token string) (string, error) {
	env, err := call(http.MethodPost, "/posts", token, map[string]string{"content": "like storm"})
	if err != nil {
		return "", err
	}
	var post struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &post); err != nil {
		return "", err
	}
	return post.ID, nil
}

func like(token, postID string) bool {
	env, err := call(http.MethodPost, "/posts/"+postID+"/like", token, nil)
	if err != nil {
		return false
	}
	var result struct {
		Liked bool `json:"liked"`
	}
	return json.Unmarshal(env.Data, &result) == nil && result.Liked
}

func fetchLikeCount(token, postID string) (int64, error) {
	env, err := call(http.MethodGet, "/posts/"+postID, token, nil)
	if err != nil {
		return 0, err
	}
	var post struct {
		LikeCount int64 `json:"likeCount"`
	}
	if err := json.Unmarshal(env.Data, &post); err != nil {
		return 0, err
	}
	return post.LikeCount, nil
}
