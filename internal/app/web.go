package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/revsmoke/scanplan-precision/internal/config"
	"github.com/revsmoke/scanplan-precision/internal/engine"
	"github.com/revsmoke/scanplan-precision/internal/measure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RunWeb serves the latest engine output over HTTP and streams measurements
// to websocket clients as they arrive.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu          sync.RWMutex
		lastState   StateMessage
		haveState   bool
		lastMeas    measure.CompensatedMeasurement
		haveMeas    bool
		lastMetrics engine.Metrics
		haveMetrics bool
	)

	var (
		wsMu      sync.Mutex
		wsClients = make(map[*websocket.Conn]struct{})
	)

	broadcast := func(payload []byte) {
		wsMu.Lock()
		defer wsMu.Unlock()
		for conn := range wsClients {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(wsClients, conn)
			}
		}
	}

	// 1) Connect to the broker and mirror the engine's output topics.
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	stateToken := client.Subscribe(cfg.TopicMotionState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s StateMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: state unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastState = s
		haveState = true
		mu.Unlock()
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}

	measToken := client.Subscribe(cfg.TopicMeasurements, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m measure.CompensatedMeasurement
		if err := json.Unmarshal(msg.Payload(), &m); err != nil || m.Raw.Kind == "" {
			return
		}
		mu.Lock()
		lastMeas = m
		haveMeas = true
		mu.Unlock()
		broadcast(msg.Payload())
	})
	measToken.Wait()
	if measToken.Error() != nil {
		return measToken.Error()
	}

	metricsToken := client.Subscribe(cfg.TopicMetrics, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m engine.Metrics
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("web: metrics unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastMetrics = m
		haveMetrics = true
		mu.Unlock()
	})
	metricsToken.Wait()
	if metricsToken.Error() != nil {
		return metricsToken.Error()
	}
	log.Println("web: subscribed to engine topics")

	// 2) JSON API endpoints: latest state, measurement, and metrics.
	http.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if !haveState {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastState); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/measurement", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if !haveMeas {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastMeas); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if !haveMetrics {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastMetrics); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 3) Measure requests forwarded onto the request topic.
	http.HandleFunc("/api/measure", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req MeasureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		payload, err := json.Marshal(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if token := client.Publish(cfg.TopicMeasureRequest, 0, false, payload); token.Wait() && token.Error() != nil {
			http.Error(w, token.Error().Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// 4) Websocket stream of measurements.
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		wsMu.Lock()
		wsClients[conn] = struct{}{}
		wsMu.Unlock()
		log.Printf("web: websocket client connected (%s)", r.RemoteAddr)

		// Drain reads so we notice disconnects.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					wsMu.Lock()
					delete(wsClients, conn)
					wsMu.Unlock()
					conn.Close()
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
