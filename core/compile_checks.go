package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ CredentialRefresher = CredentialRefresherFunc(nil)
	_ Reloader            = ReloadFunc(nil)
	_ Reloader            = NopReloader{}
	_ error               = (*FailureError)(nil)
	_ MetricsRecorder     = NopMetricsRecorder{}

	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ RawConfigLoader = StaticRawConfigLoader{}
	_ RawConfigLoader = EnvConfigLoader{}
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
