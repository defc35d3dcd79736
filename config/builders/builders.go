// Package builders 注册内置的配置驱动 Node。入口处 import _ 即可：
//
//	import _ "github.com/rushteam/movierec/config/builders"
package builders

import (
	"fmt"

	"github.com/rushteam/movierec/config"
	"github.com/rushteam/movierec/core"
	"github.com/rushteam/movierec/filter"
	"github.com/rushteam/movierec/pipeline"
	"github.com/rushteam/movierec/pkg/conv"
	"github.com/rushteam/movierec/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.blacklist", BuildBlacklistFilterNode)
	config.Register("filter.seed", BuildSeedFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// Factory 返回注册表中全部 Node 类型的工厂，其中需要外部数据的过滤器（黑名单 key）绑定到 s。
// s 为 nil 时与 config.DefaultFactory 相同：配置了 key 的黑名单构建失败。
func Factory(s core.Store) *pipeline.NodeFactory {
	f := config.DefaultFactory()
	if s == nil {
		return f
	}
	b := builder{store: s}
	f.Register("filter", b.filterNode)
	f.Register("filter.blacklist", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return b.singleFilterNode("blacklist", cfg)
	})
	return f
}

// builder 持有构建过滤器所需的外部依赖
type builder struct {
	store core.Store
}

// BuildFilterNode 组合多个过滤器：
//
//	type: filter
//	config:
//	  filters:
//	    - {type: seed}
//	    - {type: expr, expr: "movie.year >= 1990"}
//	    - {type: blacklist, ids: [550], key: "movierec:blacklist"}
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return builder{}.filterNode(cfg)
}

func BuildExprFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return builder{}.singleFilterNode("expr", cfg)
}

// BuildBlacklistFilterNode 只支持内存 ids；带 key 的黑名单需要通过 Factory 绑定 Store
func BuildBlacklistFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return builder{}.singleFilterNode("blacklist", cfg)
}

func BuildSeedFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return builder{}.singleFilterNode("seed", cfg)
}

// BuildTopNNode 构建截断节点，n 缺省为 core.DefaultTopN
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", core.DefaultTopN)
	return &rerank.TopNNode{N: int(n)}, nil
}

func (b builder) filterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		f, err := b.filter(conv.ConfigGet(filterMap, "type", ""), filterMap)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func (b builder) singleFilterNode(filterType string, cfg map[string]interface{}) (pipeline.Node, error) {
	f, err := b.filter(filterType, cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func (b builder) filter(filterType string, cfg map[string]interface{}) (filter.Filter, error) {
	switch filterType {
	case "seed":
		return &filter.SeedFilter{}, nil
	case "expr":
		expr := conv.ConfigGet(cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("expr filter: expr not found")
		}
		f, err := filter.NewExprFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("expr filter %q: %w", expr, err)
		}
		return f, nil
	case "blacklist":
		ids := conv.SliceAnyToInt64(cfg["ids"])
		key := conv.ConfigGet(cfg, "key", "")
		var adapter *filter.StoreAdapter
		if key != "" {
			if b.store == nil {
				return nil, fmt.Errorf("blacklist filter: key %q requires a store", key)
			}
			adapter = filter.NewStoreAdapter(b.store)
		}
		return filter.NewBlacklistFilter(ids, adapter, key), nil
	default:
		return nil, fmt.Errorf("unknown filter type: %s", filterType)
	}
}
