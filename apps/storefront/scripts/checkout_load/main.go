// checkout_load 并发下单压测: 每个模拟用户各自持有会话, 加购同一商品后立即结账
// 用于观察限流 (429) 和库存不超卖: 成功单数不会超过库存
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"
)

// Result 按 HTTP 状态码统计结账结果
type Result struct {
	mu       sync.Mutex
	Statuses map[int]int
	Errors   int
}

func (r *Result) record(status int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.Errors++
		return
	}
	r.Statuses[status]++
}

// Succeeded 成功创建的订单数
func (r *Result) Succeeded() int {
	return r.Statuses[http.StatusCreated]
}

var address = map[string]string{
	"first_name": "Load", "last_name": "Tester", "address": "1 Test St",
	"city": "Cebu", "province": "Cebu", "region": "VII",
	"zip": "6000", "phone": "+639170000000",
}

func post(client *http.Client, url string, body interface{}) (int, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// checkout 一个用户: 加购 quantity 件后结账, 返回结账的状态码
func checkout(baseURL, sku string, quantity int, timeout time.Duration) (int, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return 0, err
	}
	client := &http.Client{Jar: jar, Timeout: timeout}

	status, err := post(client, fmt.Sprintf("%s/products/add-to-cart/%s/", baseURL, sku), map[string]int{"quantity": quantity})
	if err != nil || status != http.StatusOK {
		return status, err
	}
	return post(client, baseURL+"/checkout/", map[string]interface{}{"billing": address, "shipping": address})
}

// Run users 个用户同时下单
func Run(baseURL, sku string, users, quantity int, timeout time.Duration) *Result {
	res := &Result{Statuses: map[int]int{}}
	var wg sync.WaitGroup
	wg.Add(users)
	for i := 0; i < users; i++ {
		go func() {
			defer wg.Done()
			res.record(checkout(baseURL, sku, quantity, timeout))
		}()
	}
	wg.Wait()
	return res
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "storefront base URL")
	sku := flag.String("sku", "", "product SKU to buy")
	users := flag.Int("users", 50, "concurrent shoppers")
	quantity := flag.Int("quantity", 1, "units per order")
	flag.Parse()
	if *sku == "" {
		flag.Usage()
		return
	}

	fmt.Printf("checkout load: sku=%s users=%d quantity=%d\n", *sku, *users, *quantity)
	start := time.Now()
	res := Run(*baseURL, *sku, *users, *quantity, 5*time.Second)

	fmt.Printf("finished in %v\n", time.Since(start))
	fmt.Printf("orders placed: %d\n", res.Succeeded())
	for status, n := range res.Statuses {
		if status != http.StatusCreated {
			fmt.Printf("status %d: %d\n", status, n)
		}
	}
	fmt.Printf("transport errors: %d\n", res.Errors)
}
