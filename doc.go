// Package componentbus provides a typed message bus for simulated
// micro-robot components: spheres, joints, actuators, and sensors that
// coordinate by exchanging envelopes over named topics.
//
// # Architecture
//
// Components never talk to a transport directly. Each one owns a
// communicator, which publishes and subscribes through a bridge; the
// bridge owns the topic registry and delegates raw byte transport to a
// swappable backend.
//
//	┌─────────────────────────────────────┐
//	│       Component Interface           │  lifecycle, callbacks,
//	│  (connect, motion, sensors, state)  │  state snapshots
//	└─────────────────────────────────────┘
//	           ↓ sends and receives via
//	┌─────────────────────────────────────┐
//	│         Communicator                │  handler registration,
//	│   (commands, telemetry, errors)     │  target filtering
//	└─────────────────────────────────────┘
//	           ↓ publishes through
//	┌─────────────────────────────────────┐
//	│            Bridge                   │  topic lifecycle,
//	│  (publish, subscribe, builders)     │  envelope codec, metrics
//	└─────────────────────────────────────┘
//	           ↓ delegates transport to
//	┌─────────────────────────────────────┐
//	│     Backend (mock or NATS)          │  per-subscriber queues,
//	│                                     │  fault isolation
//	└─────────────────────────────────────┘
//
// Topics follow a fixed scheme, one per component and communication
// category:
//
//	micro_robot.<category>.<component_id>
//	micro_robot.command.sphere-1
//	micro_robot.telemetry.sphere-1
//	micro_robot.state.sphere-1
//
// The mock backend runs the whole bus in-process with the same delivery
// semantics the NATS backend provides over the wire, so component logic
// and tests run unchanged against either.
//
// # Packages
//
// Messaging core:
//   - message: envelope and the typed payload set, with a registry for
//     payload decoding
//   - bridge: topic lifecycle, publish/subscribe, backend selection
//   - communicator: per-component command and coordination dispatch
//   - pattern: typed pub/sub and correlated request-response
//   - component: component lifecycle, connection handshake, callbacks
//
// Infrastructure:
//   - natsclient: NATS connection management with circuit breaker
//   - config: configuration loading and validation
//   - metric: Prometheus metrics
//   - errors: classified error handling
//   - health: component liveness derived from bus traffic
//   - gateway: read-only HTTP surface (status, health, metrics, live feed)
//   - pkg/timestamp: Unix-seconds timestamp utilities
//
// # Usage
//
// Basic bus setup with two connected components:
//
//	b, _ := bridge.New("main")
//	_ = b.Start(ctx)
//
//	left, _ := component.NewInterface("sphere-left", message.ComponentSphere, b, logger)
//	right, _ := component.NewInterface("sphere-right", message.ComponentSphere, b, logger)
//	_ = left.Start(ctx)
//	_ = right.Start(ctx)
//
//	left.ConnectToComponent(ctx, "sphere-right", 5*time.Second)
//	left.SendCommand(ctx, "sphere-right", "set_led", map[string]any{"color": "green"})
//
// Running against a real NATS server instead of the in-process mock:
//
//	client, _ := natsclient.NewClient("nats://localhost:4222")
//	b, _ := bridge.New("main", bridge.WithBackend(bridge.NewNATSBackend(client, logger)))
//
// # Design Principles
//
// Fault isolation:
//   - Each subscriber gets its own dispatch queue; a slow or panicking
//     handler never stalls its peers
//   - Publishing is best-effort with a boolean result; drops are counted
//     and logged, never silently lost
//
// Typed traffic:
//   - Every payload validates itself before it is published
//   - Unknown payload types survive decode for forward compatibility
//
// Testability:
//   - Explicit dependencies (no globals)
//   - The mock backend makes full-bus tests cheap
//   - Integration tests run the NATS backend with testcontainers
package componentbus
