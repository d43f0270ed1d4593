package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// EventsChannel est le canal pub/sub des mutations
const EventsChannel = "store:events"

// RedisStore : un hash par collection (id → JSON), une liste pour l'ordre
// d'insertion et un compteur pour les ids numériques.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func hashKey(collection string) string  { return "store:" + collection }
func orderKey(collection string) string { return "store:" + collection + ":ids" }
func seqKey(collection string) string   { return "store:" + collection + ":seq" }

func (s *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	ids, err := s.client.LRange(ctx, orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Document{}, nil
	}

	values, err := s.client.HMGet(ctx, hashKey(collection), ids...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id orphelin dans la liste, ignoré
			continue
		}
		doc, err := Decode([]byte(raw))
		if err != nil {
			log.Printf("⚠️ Document illisible %s/%s: %v", collection, ids[i], err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	raw, err := s.client.HGet(ctx, hashKey(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Decode([]byte(raw))
}

func (s *RedisStore) Create(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	doc = clone(doc)

	id := DocID(doc)
	switch {
	case id != "":
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			// garder le compteur au-dessus des ids importés
			current, _ := s.client.Get(ctx, seqKey(collection)).Int64()
			if n > current {
				s.client.Set(ctx, seqKey(collection), n, 0)
			}
		}
	case usesUUID(collection):
		id = newUUID()
	default:
		n, err := s.client.Incr(ctx, seqKey(collection)).Result()
		if err != nil {
			return nil, err
		}
		id = strconv.FormatInt(n, 10)
	}
	setID(doc, id)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	existed, err := s.client.HExists(ctx, hashKey(collection), id).Result()
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, hashKey(collection), id, data)
	if !existed {
		pipe.RPush(ctx, orderKey(collection), id)
	}
	pipe.Publish(ctx, EventsChannel, encodeEvent(Event{Collection: collection, Action: "created", ID: id}))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, doc Document) (Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	exists, err := s.client.HExists(ctx, hashKey(collection), id).Result()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	doc = clone(doc)
	setID(doc, id)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, hashKey(collection), id, data)
	pipe.Publish(ctx, EventsChannel, encodeEvent(Event{Collection: collection, Action: "updated", ID: id}))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	removed, err := s.client.HDel(ctx, hashKey(collection), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.LRem(ctx, orderKey(collection), 0, id)
	pipe.Publish(ctx, EventsChannel, encodeEvent(Event{Collection: collection, Action: "deleted", ID: id}))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := s.client.Subscribe(ctx, EventsChannel)
	// attendre la confirmation d'abonnement avant de rendre la main
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("abonnement %s: %w", EventsChannel, err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("⚠️ Événement illisible: %v", err)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func encodeEvent(ev Event) string {
	data, _ := json.Marshal(ev)
	return string(data)
}
