package ir

// EngineVersion is the tracegraph engine version, reported by
// `tracegraph --version`.
const EngineVersion = "0.1.0"
