// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"chat-analysis-go/internal/config"
	"chat-analysis-go/internal/model"
	"chat-analysis-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端并确保消息索引存在。
func InitES(esCfg config.ElasticsearchConfig) error {
	var addresses []string
	for _, a := range strings.Split(esCfg.Addresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addresses = append(addresses, a)
		}
	}
	cfg := elasticsearch.Config{
		Addresses: addresses,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(client, esCfg.IndexName)
}

const messageMapping = `{
	"mappings": {
		"properties": {
			"row": { "type": "integer" },
			"user": { "type": "keyword" },
			"message": { "type": "text", "analyzer": "standard" },
			"datetime": { "type": "date", "format": "yyyy-MM-dd HH:mm:ss" },
			"year": { "type": "integer" },
			"hour": { "type": "integer" }
		}
	}
}`

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	created, err := client.Indices.Create(indexName, client.Indices.Create.WithBody(strings.NewReader(messageMapping)))
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer created.Body.Close()
	if created.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, created.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// MessageIndex 维护 dataset1 消息的全文索引。
type MessageIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewMessageIndex 创建基于给定客户端与索引名的消息索引。
func NewMessageIndex(client *elasticsearch.Client, index string) *MessageIndex {
	return &MessageIndex{client: client, index: index}
}

// ReplaceAll 清空索引后批量写入 msgs，使索引内容与最近一次加载一致。
func (m *MessageIndex) ReplaceAll(ctx context.Context, msgs []model.IndexedMessage) error {
	del := esapi.DeleteByQueryRequest{
		Index:     []string{m.index},
		Body:      strings.NewReader(`{"query":{"match_all":{}}}`),
		Conflicts: "proceed",
	}
	res, err := del.Do(ctx, m.client)
	if err != nil {
		return fmt.Errorf("清空消息索引失败: %w", err)
	}
	_ = drain(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("清空消息索引失败: %s", res.Status())
	}

	if len(msgs) == 0 {
		return nil
	}
	body, err := bulkBody(m.index, msgs)
	if err != nil {
		return err
	}
	bulk := esapi.BulkRequest{Body: body, Refresh: "true"}
	res, err = bulk.Do(ctx, m.client)
	if err != nil {
		return fmt.Errorf("批量写入消息失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("批量写入消息失败: %s", res.String())
	}

	var parsed struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("解析批量写入响应失败: %w", err)
	}
	if parsed.Errors {
		return errors.New("批量写入消息时部分文档失败")
	}
	log.Infof("[MessageIndex] 已写入 %d 条消息到索引 '%s'", len(msgs), m.index)
	return nil
}

func bulkBody(index string, msgs []model.IndexedMessage) (io.Reader, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, msg := range msgs {
		id := msg.DocID
		if id == "" {
			id = strconv.Itoa(msg.Row)
		}
		meta := map[string]map[string]string{"index": {"_index": index, "_id": id}}
		if err := enc.Encode(meta); err != nil {
			return nil, err
		}
		if err := enc.Encode(msg); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

// Search 按关键词全文检索消息，按相关度降序返回最多 size 条。
func (m *MessageIndex) Search(ctx context.Context, query string, size int) ([]model.MessageHit, error) {
	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"message": map[string]interface{}{"query": query},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := m.client.Search(
		m.client.Search.WithContext(ctx),
		m.client.Search.WithIndex(m.index),
		m.client.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[MessageIndex] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch 返回错误: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string               `json:"_id"`
				Score  float64              `json:"_score"`
				Source model.IndexedMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析 Elasticsearch 响应失败: %w", err)
	}

	hits := make([]model.MessageHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		msg := h.Source
		msg.DocID = h.ID
		hits = append(hits, model.MessageHit{IndexedMessage: msg, Score: h.Score})
	}
	return hits, nil
}

func drain(res *esapi.Response) error {
	defer res.Body.Close()
	_, err := io.Copy(io.Discard, res.Body)
	return err
}
