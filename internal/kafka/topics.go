package kafka

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"gba-rental/internal/logger"
)

// EnsureTopicsExist creates the given topics on the cluster controller.
// Topics that already exist are left alone.
func EnsureTopicsExist(brokers []string, topics []string, log *logger.Logger) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err := controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		switch {
		case err == nil:
			log.LogKafka("CREATE", topic, "topic created")
		case strings.Contains(err.Error(), "already exists"):
			log.LogKafka("CREATE", topic, "topic already exists")
		default:
			// Keep going; a missing topic only delays the first publish.
			log.Warn("KAFKA", fmt.Sprintf("Error creating topic %s: %v", topic, err))
		}
	}

	// Give the cluster a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
	return nil
}
