package utils

import (
	"context"
	"reflect"

	"github.com/mmdatafocus/kitchen_backend/config"
)

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

func listKey[T any](businessId string) string {
	if businessId == "" {
		return GetTypeName[T]() + "List"
	}
	return GetTypeName[T]() + "List:" + businessId
}

// StoreRedisList caches a business' full list of T for config.CacheLifespan.
func StoreRedisList[T any](ctx context.Context, businessId string, list []*T) error {
	return config.SetRedisObject(ctx, listKey[T](businessId), list, config.CacheLifespan())
}

// RetrieveRedisList returns nil, nil when the list is not cached.
func RetrieveRedisList[T any](ctx context.Context, businessId string) ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(ctx, listKey[T](businessId), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

func RemoveRedisList[T any](ctx context.Context, businessId string) error {
	return config.RemoveRedisKey(ctx, listKey[T](businessId))
}
